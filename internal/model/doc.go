package model

// Package model defines the domain data structures shared across the
// engine: detected streams, quality/audio selection, download jobs and
// their progress, and the native-messaging Message sum type. Structures
// are immutable once parsed except where a mutator is documented, and
// job state transitions are explicit rather than implied.
