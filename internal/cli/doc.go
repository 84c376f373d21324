// Package cli implements the fv commands: watch, tail and serve read an MQTT
// topic into a shared buffer and redraw it, publish produces demo feeds, and
// init writes a config file.
package cli
