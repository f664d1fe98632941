package reconciliation

// DinoCounters es la cantidad de contadores físicos (uno por dinosaurio).
const DinoCounters = 6

// CountRides suma los contadores acumulados del día y descuenta el acumulado
// del cierre anterior.
func CountRides(counters []int, accumulatedPrev int) (totalToday, ridesToday int) {
	for _, c := range counters {
		totalToday += c
	}
	return totalToday, totalToday - accumulatedPrev
}
