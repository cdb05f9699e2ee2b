// Package transcribe defines the speech recognition capability the pipeline
// depends on. Concrete engines live under internal/services.
package transcribe
