// Package cache provides the identity-evicted map behind the scaler
// backend's glyph image cache.
//
// Entries are never dropped for size or age. They leave the cache only
// through DeleteFunc or Clear, so repeated lookups are reproducible.
//
//	c := cache.New[key, *image.RGBA]()
//	img, err := c.GetOrCreate(k, render)
//	c.DeleteFunc(func(k key, _ *image.RGBA) bool { return k.font == deleted })
package cache
