// Package web hosts the chain UI: host page with the mounted view, bundle
// assets, the development proxy and the metrics endpoint.
//
//	webserver_core_routes.go - server setup, middleware chain and routes
//	web_pages.go             - page, asset and fallback handlers
//	web_middleware.go        - request id, logging, no-cache, dev proxy
//	web_metrics.go           - prometheus collectors
//	web_watch.go             - development bundle watcher
//	embedded_static.go       - embedded and on-disk bundles, ETags
package web
