package math

import (
	m "math"
	"time"

	"golang.org/x/exp/rand"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	K_PI_2 float32 = 2.0 * K_PI
	/** @brief An approximate representation of PI divided by 2. */
	K_HALF_PI float32 = 0.5 * K_PI
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief A multiplier used to convert radians to degrees. */
	K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

var rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

func ksin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func kcos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

func kabs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

// Seed reseeds the package random source. Used to make testbed runs reproducible.
func Seed(seed uint64) {
	rng.Seed(seed)
}

// RandomInRange returns a random integer in [min, max].
func RandomInRange(min, max int32) int32 {
	if min >= max {
		return min
	}
	return min + rng.Int31n(max-min+1)
}

// FRandomInRange returns a random float in [min, max).
func FRandomInRange(min, max float32) float32 {
	return min + rng.Float32()*(max-min)
}

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}

// FloatEquals compares two floats within K_FLOAT_EPSILON.
func FloatEquals(a, b float32) bool {
	return kabs(a-b) < K_FLOAT_EPSILON
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func NewVec2Zero() Vec2 {
	return Vec2{}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) MulScalar(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Rotate rotates v around the origin by angle radians (counter-clockwise).
func (v Vec2) Rotate(angle float32) Vec2 {
	if angle == 0 {
		return v
	}
	c, s := kcos(angle), ksin(angle)
	return Vec2{
		X: v.X*c - v.Y*s,
		Y: v.X*s + v.Y*c,
	}
}

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// PackARGB packs an RGB colour and an alpha (all in [0,1]) into 0xAARRGGBB.
func PackARGB(r, g, b, a float32) uint32 {
	to8 := func(c float32) uint32 {
		return uint32(Clamp(c, 0, 1)*255.0 + 0.5)
	}
	return to8(a)<<24 | to8(r)<<16 | to8(g)<<8 | to8(b)
}

// UnpackARGB is the inverse of PackARGB.
func UnpackARGB(c uint32) Vec4 {
	return Vec4{
		X: float32((c>>16)&0xff) / 255.0,
		Y: float32((c>>8)&0xff) / 255.0,
		Z: float32(c&0xff) / 255.0,
		W: float32((c>>24)&0xff) / 255.0,
	}
}
