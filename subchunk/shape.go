package subchunk

import "math"

// Point is a block position inside a subchunk.
type Point struct {
	X, Y, Z int
}

// Sphere sets index on every block whose distance from center, truncated to an integer, equals
// radius. The result is a hollow shell one block thick, clipped to the subchunk.
func (s *BlockStorage) Sphere(center Point, radius int, index uint8) {
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			for z := 0; z < Size; z++ {
				dx, dy, dz := x-center.X, y-center.Y, z-center.Z
				if int(math.Sqrt(float64(dx*dx+dy*dy+dz*dz))) == radius {
					s.Blocks[x][y][z] = index
				}
			}
		}
	}
}
