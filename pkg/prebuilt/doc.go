// Package prebuilt provides ready-made node kinds for common patterns:
// constants, arithmetic, printing, stateful counters, exec gates, and
// clock sources. They double as reference implementations for writing
// custom kinds.
package prebuilt
