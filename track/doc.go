// Package track implements the three status-tracking use cases built on
// the jobpoll engine: avatar training, AI-avatar generation, and look
// generation.
//
// Each tracker wraps one engine strategy with domain policy:
//
//   - [TrainingTracker] polls on a fixed 30-second interval with backoff
//     disabled, so transient errors never change the cadence. A ready
//     status is mapped to [StatusActive] and ends tracking.
//   - [GenerationTracker] polls recursively every 5 seconds and drives a
//     staged progress machine (creating, photos_ready, completing,
//     completed/failed), with a 5-minute wall-clock guard.
//   - [LookTracker] polls recursively every 5 seconds under a 60-attempt
//     budget and an independent 5-minute cutoff that surfaces
//     [ErrTimedOut].
//
// Trackers talk to the backend through a [StatusFunc], built either by the
// caller or from a [Job] definition by the statuscheck probe layer. The
// trackers know nothing about HTTP or payload shapes; extractors such as
// [JSONFieldExtractor] translate responses into a [Status].
package track
