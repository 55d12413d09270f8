/*
Package chromacal converts raw tri-stimulus color sensor readings into
perceptually accurate sRGB using operator-supplied calibration reference
points.

Three engines cooperate: a least-squares color correction matrix solver
(package ccm), a four-point tetrahedral interpolator (package tetra), and a
CIEDE2000 difference engine (package deltae) that grades how well either
conversion path reproduces known targets. The Converter in this package picks
the best available path per reading and tags each result with the method used.
*/
package chromacal

import "fmt"

type ChromacalVersion struct {
	Major, Minor, Patch uint
}

func (v ChromacalVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v ChromacalVersion) Equal(o ChromacalVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v ChromacalVersion) After(o ChromacalVersion) bool {
	switch {
	case v.Major == o.Major:
		switch {
		case v.Minor == o.Minor:
			return v.Patch > o.Patch
		case v.Minor > o.Minor:
			return true
		case v.Minor < o.Minor:
			return false
		}
	case v.Major > o.Major:
		return true
	case v.Major < o.Major:
		return false
	}
	return false
}

func (v ChromacalVersion) Before(o ChromacalVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = ChromacalVersion{0, 3, 0}
