// Package magetasks holds the build, lint and test tasks behind the
// Magefile. The self-check runs the freshly built testrules binary on
// this repository and reads its summary back.
package magetasks
