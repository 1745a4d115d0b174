package geom

// CubicPoly 三次多项式 a + b·t + c·t² + d·t³
type CubicPoly struct {
	A, B, C, D float64
}

// Eval 计算多项式在t处的值（Horner形式）
func (p CubicPoly) Eval(t float64) float64 {
	return p.A + t*(p.B+t*(p.C+t*p.D))
}

// IsZero 判断多项式是否恒为0
func (p CubicPoly) IsZero() bool {
	return p.A == 0 && p.B == 0 && p.C == 0 && p.D == 0
}
