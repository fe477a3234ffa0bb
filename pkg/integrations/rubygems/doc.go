// Package rubygems provides an HTTP client for the RubyGems.org API.
//
// # Overview
//
// This package fetches gem metadata from RubyGems.org (https://rubygems.org),
// the Ruby community's gem hosting service. Pinned versions are looked up
// through the v2 versions endpoint; unpinned gems through the v1 gem
// endpoint, which describes the current release.
//
// # Usage
//
//	client := rubygems.NewClient(backend, 24*time.Hour)
//
//	gem, err := client.FetchGem(ctx, "rails", "7.1.2", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(gem.Enrichment())
//
// # Caching
//
// Responses are cached to reduce load on RubyGems. The cache TTL is set
// when creating the client. Pass refresh=true to bypass the cache.
package rubygems
