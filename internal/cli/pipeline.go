package cli

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/rileyhilliard/fv/internal/config"
	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/sample"
	"github.com/rileyhilliard/fv/internal/ui"
	"github.com/rileyhilliard/fv/internal/util"
)

// newSubscriber builds the MQTT transport. Tests replace it with a fake.
var newSubscriber = func(opts feed.Options, log logger.Logger) (feed.Subscriber, error) {
	return feed.NewPahoSubscriber(opts, log)
}

// pipeline is the shared front half of every viewer: subscriber, decoder,
// listener and buffer.
type pipeline struct {
	cfg      *config.Config
	url      string
	labels   []string
	buf      *sample.Buffer
	listener *feed.Listener
	log      logger.Logger

	// cancel ends the context returned by bind when the feed is lost.
	cancel context.CancelCauseFunc
}

func newPipeline(cfg *config.Config, log logger.Logger, opts ...feed.Option) (*pipeline, error) {
	dec, err := decode.Lookup(cfg.Feed.Decoder, cfg.Feed.Key)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown decoder "+cfg.Feed.Decoder,
			"Use one of: "+util.JoinOrNone(decode.Kinds()))
	}

	feedOpts := cfg.FeedOptions()
	feed.BridgeLogs(log)
	sub, err := newSubscriber(feedOpts, log)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't set up the MQTT client",
			"Check broker.host: a hostname or a tcp://, ssl:// or ws:// URL")
	}

	p := &pipeline{
		cfg:    cfg,
		url:    feedOpts.BrokerURL(),
		labels: decode.Labels(cfg.Feed.Decoder, cfg.Feed.Key),
		buf:    sample.NewBuffer(cfg.Buffer.Max),
		log:    log,
	}
	opts = append([]feed.Option{
		feed.WithLogger(log),
		feed.WithConnectionLostHandler(p.connectionLost),
	}, opts...)
	p.listener = feed.NewListener(sub, cfg.Feed.Topic, dec, p.buf, opts...)
	return p, nil
}

// bind returns a context that ends with parent or when the connection is
// lost for good. Call it before start.
func (p *pipeline) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	p.cancel = cancel
	return ctx, func() { cancel(nil) }
}

func (p *pipeline) connectionLost(err error) {
	if p.cancel != nil {
		p.cancel(err)
	}
}

// lostErr returns the connection error that ended ctx, or nil when ctx
// ended for any other reason.
func lostErr(ctx context.Context) error {
	if cause := context.Cause(ctx); errors.IsCode(cause, errors.ErrConnect) {
		return cause
	}
	return nil
}

// start connects and subscribes behind a spinner. A failure here is fatal.
func (p *pipeline) start(ctx context.Context, out io.Writer, interactive bool) error {
	spinner := ui.NewSpinner("Connecting to " + p.url)
	spinner.SetOutput(func(s string) { io.WriteString(out, s) })
	spinner.SetInteractive(interactive)
	spinner.Start()

	if err := p.listener.Start(ctx); err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()
	return nil
}

func (p *pipeline) stop() {
	p.listener.Stop()
	st := p.listener.Stats()
	p.log.Debug("feed stopped: %d received, %d appended, %d dropped", st.Received, st.Appended, st.Dropped)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
