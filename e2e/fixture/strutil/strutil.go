// Package strutil is a small text helper package. The end-to-end tests
// generate a command-line tool from it.
package strutil

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how Case rewrites its input.
type Mode string

// Level is a small unsigned quantity.
type Level uint8

// Tab indents text with one tab.
func Tab(text string) string {
	return "\t" + text
}

// Untab removes the leading tabs of text.
func Untab(text string) string {
	return strings.TrimLeft(text, "\t")
}

// Shift doubles a level.
func Shift(level Level) Level {
	return level << 1
}

// Offset adds a small signed step to n.
//
//cligen:default by=1
func Offset(n int, by int8) int {
	return n + int(by)
}

// Tags reports how many tags it received and what they are.
//
//cligen:default tags=[none]
func Tags(tags []string) string {
	return fmt.Sprintf("%d:%q", len(tags), tags)
}

// Greet joins a greeting and a subject.
//
//cligen:default hello=Hello
//cligen:default world=World!
//cligen:help hello=the greeting word
func Greet(hello, world string) string {
	return hello + ", " + world
}

// Repeat returns text repeated count times, separated by sep.
//
//cligen:default count=2
//cligen:default sep=" "
func Repeat(text string, count int, sep string) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("count must not be negative, got %d", count)
	}
	parts := make([]string, count)
	for i := range parts {
		parts[i] = text
	}
	return strings.Join(parts, sep), nil
}

// Join concatenates words with a separator.
//
//cligen:default sep=,
func Join(sep string, words ...string) string {
	return strings.Join(words, sep)
}

// Case rewrites text in upper or lower case.
//
//cligen:default mode=upper
//cligen:default trim=false
func Case(text string, mode Mode, trim bool) string {
	if trim {
		text = strings.TrimSpace(text)
	}
	if mode == "lower" {
		return strings.ToLower(text)
	}
	return strings.ToUpper(text)
}

// Keys lists the keys of a JSON object in sorted order.
//
//cligen:default fields={}
func Keys(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Debug prints internal state and is not part of the generated tool.
//
//cligen:ignore
func Debug() {
	fmt.Println("debug")
}

// Map applies fn to every element. Generic functions cannot become commands.
func Map[T any](items []T, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
