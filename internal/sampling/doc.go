// Package sampling renders generated images into PNG sample sheets.
//
// A Writer lays out a batch of [-1, 1] images as a grid, upscales each tile
// with nearest-neighbour sampling, optionally captions the sheet with the
// epoch, and writes sample_<epoch>.png into its directory. It satisfies the
// trainer's Sampler interface.
package sampling
