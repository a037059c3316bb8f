/*
Package file implements configuration and journaling adapters on the local filesystem.

A station file lists the axes of a station with their device profile, bounds and
recipes. It can be written in YAML, TOML or JSON:

	axes:
	  - name: furnace
	    profile: thermal
	    bounds: {lower: 0, upper: 1200}
	    secondary_bounds: {lower: 0, upper: 100}
	    baseline_fallback: 20
	    recipes:
	      - name: anneal
	        loop: 1
	        records: ["60;200;r;10", "120;200;s"]

Store serves the file as a ports.RecipeLoader and hands out one live
ports.LimitSource per axis. RunStore journals runs as JSON files.
*/
package file
