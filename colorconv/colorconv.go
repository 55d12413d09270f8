// Package colorconv holds the pure color space math used by the calibration and
// validation engines: sRGB (de)linearization, the D65-referenced CIE XYZ and
// L*a*b* transforms, and the cylindrical LCh form of Lab. All conversions are
// value-to-value with no hidden state.
//
// Conventions:
// - RGB8 components are 8-bit sRGB values (0-255).
// - XYZ is scaled so that the D65 white point is (95.047, 100.000, 108.883).
// - Lab has L in [0,100] and a,b roughly in [-128,127].
// - LCh hue is in degrees, normalized to [0,360), with H defined as 0 for
//   achromatic colors (a == b == 0).
package colorconv

import (
	"fmt"
	"math"
)

type Vec3 [3]float64
type Mat3 [3][3]float64

// RGB8 is an 8-bit sRGB triple.
type RGB8 struct {
	R, G, B uint8
}

func (c RGB8) AsSharp() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB8) String() string {
	return fmt.Sprintf("RGB8{%d %d %d}", c.R, c.G, c.B)
}

// XYZ is a CIE XYZ tri-stimulus value on the 0-100 scale.
type XYZ struct {
	X, Y, Z float64
}

// Lab is a CIE L*a*b* value relative to the D65 white point.
type Lab struct {
	L, A, B float64
}

// LCh is the cylindrical form of Lab: lightness, chroma and hue angle in
// degrees.
type LCh struct {
	L, C, H float64
}

// D65 reference white on the 0-100 XYZ scale.
var whiteD65 = Vec3{95.047, 100.000, 108.883}

// sRGB (linear) to CIE XYZ (D65) transform, ITU-R BT.709 primaries.
var xyzFromLinearSRGB = Mat3{
	{0.4124564, 0.3575761, 0.1804375},
	{0.2126729, 0.7151522, 0.0721750},
	{0.0193339, 0.1191920, 0.9503041},
}

// Inverse of the above, CIE XYZ (D65) to linear sRGB.
var linearSRGBFromXYZ = Mat3{
	{3.2404542, -1.5371385, -0.4985314},
	{-0.9692660, 1.8760108, 0.0415560},
	{0.0556434, -0.2040259, 1.0572252},
}

// SRGBToLinear removes the sRGB companding from a normalized [0,1] component.
func SRGBToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the sRGB companding function to a linear component.
func LinearToSRGB(c float64) float64 {
	if c <= 0 {
		return 0
	}
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// RGBToXYZ converts an 8-bit sRGB triple to CIE XYZ (D65, 0-100 scale).
func RGBToXYZ(c RGB8) XYZ {
	r := SRGBToLinear(float64(c.R) / 255.0)
	g := SRGBToLinear(float64(c.G) / 255.0)
	b := SRGBToLinear(float64(c.B) / 255.0)
	v := mulMat3Vec(xyzFromLinearSRGB, Vec3{r, g, b})
	return XYZ{v[0] * 100, v[1] * 100, v[2] * 100}
}

// XYZToRGB converts CIE XYZ (D65, 0-100 scale) to an 8-bit sRGB triple,
// clamping each channel into gamut.
func XYZToRGB(x XYZ) RGB8 {
	v := mulMat3Vec(linearSRGBFromXYZ, Vec3{x.X / 100, x.Y / 100, x.Z / 100})
	return RGB8{
		R: to8Bit(LinearToSRGB(v[0])),
		G: to8Bit(LinearToSRGB(v[1])),
		B: to8Bit(LinearToSRGB(v[2])),
	}
}

func f(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

func finv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// XYZToLab converts XYZ (D65, 0-100 scale) into CIELAB.
func XYZToLab(x XYZ) Lab {
	fx := f(x.X / whiteD65[0])
	fy := f(x.Y / whiteD65[1])
	fz := f(x.Z / whiteD65[2])
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// LabToXYZ converts CIELAB back to XYZ (D65, 0-100 scale).
func LabToXYZ(lab Lab) XYZ {
	fy := (lab.L + 16) / 116
	fx := fy + lab.A/500
	fz := fy - lab.B/200
	return XYZ{
		X: finv(fx) * whiteD65[0],
		Y: finv(fy) * whiteD65[1],
		Z: finv(fz) * whiteD65[2],
	}
}

// RGBToLab converts an 8-bit sRGB triple straight into CIELAB (D65).
func RGBToLab(c RGB8) Lab {
	return XYZToLab(RGBToXYZ(c))
}

// LabToRGB converts CIELAB (D65) to an 8-bit sRGB triple, clamped into gamut.
func LabToRGB(lab Lab) RGB8 {
	return XYZToRGB(LabToXYZ(lab))
}

// LabToLCh converts Lab into its cylindrical form. The hue of an achromatic
// color (a == b == 0) is defined as 0.
func LabToLCh(lab Lab) LCh {
	c := math.Sqrt(lab.A*lab.A + lab.B*lab.B)
	var h float64
	if lab.A != 0 || lab.B != 0 {
		h = math.Atan2(lab.B, lab.A) * 180 / math.Pi
		if h < 0 {
			h += 360
		}
	}
	return LCh{L: lab.L, C: c, H: h}
}

// LChToLab converts the cylindrical form back to Lab.
func LChToLab(lch LCh) Lab {
	hr := lch.H * math.Pi / 180
	return Lab{
		L: lch.L,
		A: lch.C * math.Cos(hr),
		B: lch.C * math.Sin(hr),
	}
}

// ValidLab reports whether lab is inside the documented component ranges
// (L in [0,100], a and b in [-128,127]). Out-of-range values are advisory
// only; every conversion and difference formula still accepts them.
func ValidLab(lab Lab) bool {
	return lab.L >= 0 && lab.L <= 100 &&
		lab.A >= -128 && lab.A <= 127 &&
		lab.B >= -128 && lab.B <= 127
}

func to8Bit(v float64) uint8 {
	return uint8(math.Round(255 * max(0, min(v, 1))))
}

func mulMat3Vec(m Mat3, v Vec3) Vec3 {
	var out Vec3
	for i := range 3 {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}
