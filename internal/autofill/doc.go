// Package autofill suggests item details from a title using an
// OpenAI-compatible chat completion endpoint (OpenRouter by default).
//
// Client handles transport: structured completions, Retry-After aware
// backoff for 408/429/5xx and timeouts, and tolerant decoding of model
// output wrapped in code fences or prose. FormatFor turns a category's field
// set into a json_schema response format with integer types for numeric
// fields. Lookup sends it and reduces the reply to a Suggestion whose keys
// all belong to that field set, with numeric fields coerced to numbers.
//
// Auto-fill is advisory. Failures surface as *LookupError carrying a
// user-facing message, and never block saving an item. Merge folds a
// Suggestion into a draft without clearing anything the user entered.
package autofill
