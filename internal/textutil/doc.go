// Package textutil provides Unicode-aware text helpers shared by the
// transcript namer and preview rendering.
package textutil
