/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Both are plain domain.LifecycleHooks values and can be combined with
domain.ChainHooks before being handed to storefront.WithLifecycleHooks.
*/
package observability
