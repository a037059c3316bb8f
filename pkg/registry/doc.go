// Package registry groups the axis drivers of a station behind recipe names.
package registry
