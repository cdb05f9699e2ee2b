// Package language normalizes the language directive handed to the speech
// recognition engine.
package language
