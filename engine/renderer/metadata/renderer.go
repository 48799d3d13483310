package metadata

/**
 * @brief Everything one view hands to the GPU layer for a frame.
 */
type RenderViewPacket struct {
	/** @brief Name of the view this packet belongs to. */
	ViewName string
	/** @brief Batches in submission order. Consumers must preserve it. */
	Batches []ProviderRenderData
	/** @brief Why each batch boundary exists, parallel to Batches before re-sorting. */
	Debug []BatchDebugInfo
	/** @brief Number of primitives collected this frame. */
	PrimitiveCount int
}

type RenderPacket struct {
	DeltaTime   float64
	FrameNumber uint64
	ViewPackets []*RenderViewPacket
}
