// Package testsupport provides shared fixtures for package tests: temp
// configs, stub executables and generated WAV files.
package testsupport
