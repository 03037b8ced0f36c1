// Package translation resolves parameter and category labels to localized
// display names.
//
// Locale files are JSON trees whose leaves are strings; lookups use
// dot-separated labels ("status.40004"). English is embedded in the binary
// as the guaranteed fallback; other locales load from the configured
// directory or their embedded copies.
package translation
