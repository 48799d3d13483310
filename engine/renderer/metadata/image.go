package metadata

/**
 * @brief A structure to hold image resource data.
 */
type ImageResourceData struct {
	/** @brief The number of channels. Always 4 once rasterized. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief Non-premultiplied RGBA pixels, row-major, no row padding. */
	Pixels []uint8
	/** @brief True if any pixel has alpha < 255. */
	HasTransparency bool
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
	/** @brief Images wider or taller than this are rejected before full decode. 0 disables the check. */
	MaxDimension int
}
