// Package workflow sequences the four-stage clip wizard and gates stage
// transitions on domain conditions, independent of any rendering concern.
package workflow
