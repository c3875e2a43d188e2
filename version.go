package storefront

// Version is overridden at build time with -ldflags "-X github.com/aretw0/storefront.Version=...".
var Version = "dev"
