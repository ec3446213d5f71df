// Package variantkit is a client library for remote application
// configuration and A/B campaign delivery.
//
// The client fetches configuration and campaign definitions from a backend,
// caches them in pluggable persistent storage as a single versioned
// snapshot, and assigns users to campaign variants deterministically so
// repeated lookups never hit the network. Impressions and conversions flow
// through a buffered, batched, self-throttling event pipeline.
//
// Basic usage:
//
//	cfg, err := variantkit.ConfigFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := variantkit.New(cfg, variantkit.WithStorage(store.NewMemoryStorage()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Init(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	contentID, err := client.GetVariant(ctx, "pricing")
//	// ... render the variant ...
//	_ = client.RecordConversion(ctx, "pricing", map[string]any{"revenue": 9.99})
//
// A variant decision is made at most once per user and campaign per cache
// epoch. GetVariant memoizes the first decision and logs one impression;
// RecordConversion always references the memoized variant, even if the
// campaign definition changed in between.
//
// Snapshots carry a TTL. Reads within the TTL are served from cache with no
// network traffic; the first read past the TTL serves the stale snapshot
// and triggers exactly one background refresh.
package variantkit
