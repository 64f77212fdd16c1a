/*
Package gauge turns sensor values into display states.

A temperature is classified into one of eight ordered bands, a relative humidity
into one of eleven swatches of a blue palette. Both classifiers are pure functions
and safe for concurrent use.

A Display applies the classification to a pair of gauges. The gauges are passed
in by the caller, so the same Display drives an in-memory Recorder, a metrics
exporter or anything else that can hold a value and a color.
*/
package gauge
