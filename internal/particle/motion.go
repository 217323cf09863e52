package particle

import "math"

const ribbonScale = 0.08

func leafMotion(i int, prev Transform, f Frame) Transform {
	prev.Rotation.X += 0.01
	prev.Rotation.Y += 0.01
	prev.Scale = 0.15 + math.Sin(f.Elapsed*0.5+float64(i)*0.1)*0.05
	return prev
}

func cubeMotion(i int, prev Transform, f Frame) Transform {
	prev.Rotation.X += 0.02
	prev.Rotation.Y += 0.02
	prev.Scale = 0.12 + math.Sin(f.Elapsed+float64(i))*0.03
	return prev
}

func icosahedronMotion(i int, prev Transform, f Frame) Transform {
	prev.Rotation.X += 0.015
	prev.Rotation.Z += 0.015
	prev.Scale = 0.1 + math.Sin(f.Elapsed*0.8+float64(i)*0.5)*0.02
	return prev
}

// ribbonMotion sets absolute angles so neighbouring segments twist in a wave.
func ribbonMotion(i int, prev Transform, f Frame) Transform {
	prev.Rotation.X = f.Elapsed*0.5 + float64(i)*0.1
	prev.Rotation.Y = f.Elapsed*0.3 + float64(i)*0.05
	prev.Scale = ribbonScale
	return prev
}

func starMotion(_ int, prev Transform, f Frame) Transform {
	prev.Position.Y += math.Sin(f.Elapsed*1.5) * 0.2
	prev.Rotation.Z += 0.01
	prev.Scale = 1 + math.Sin(f.Elapsed*2)*0.1
	return prev
}
