package service

import "math"

// mean возвращает среднее арифметическое ряда
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev возвращает стандартное отклонение ряда (population)
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// olsSlope возвращает наклон МНК-прямой для равноотстоящего ряда y
// с x = 0..n-1
func olsSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// coefficientOfVariation возвращает изменчивость ряда: stddev/mean
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stdDev(values) / m
}

// gridIndex возвращает индекс ячейки координаты при шаге step
func gridIndex(value, step float64) int {
	if step <= 0 {
		return 0
	}
	return int(math.Floor(value / step))
}
