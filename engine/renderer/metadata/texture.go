package metadata

/**
 * @brief Represents a GPU texture handed out by the texture backend.
 */
type Texture struct {
	/** @brief The backend texture identifier. */
	ID uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The texture Generation. Incremented every time the data is written. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief The raw texture data (pixels), RGBA. */
	Pixels []uint8
}

/** @brief The texture key used for primitives that sample no texture. */
const SOLID_TEXTURE_KEY string = "solid"
