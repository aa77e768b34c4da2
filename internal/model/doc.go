// Package model provides learned forward-dynamics models for model-based
// policy search. Both models consume (state, action, outcome) transition
// observations and answer queries for new (state, action) pairs:
//
//   - [Ensemble]: one scalar regressor per outcome dimension, fitted and
//     queried in parallel, with per-dimension predictive uncertainty
//   - [MeanModel]: a single parametric mean function fitted jointly over
//     all outcome dimensions, with no uncertainty estimate
//
// Every Learn call refits from scratch on the full observation set; there
// are no incremental updates. A model moves from unfitted to fitted on its
// first successful Learn and stays fitted afterwards.
//
// # Thread Safety
//
// Model instances are NOT safe for concurrent top-level calls. Learn
// replaces internal state non-atomically, so callers that share one
// instance must serialize Learn/Predict/PredictM externally. Parallelism
// inside a single call is managed by the model itself.
package model
