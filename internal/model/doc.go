// Package model defines the data structures shared across validity.
//
// This package contains the following main types:
//   - Evaluation: the mutable state carried through the scoring pipeline
//   - Report: the flat validity report handed to callers and writers
//   - Weights: the linear blend used to compute the final validity score
//   - Component: the names of the individual scores
//
// Models live in their own package so that pipeline, scorer and report
// can share them without import cycles.
package model
