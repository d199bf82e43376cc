package clock

import "time"

// Clock - абстракция источника времени. Вся арифметика дедлайнов считается
// через Now(), а не через декремент счетчика, чтобы пережить приостановку процесса.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New возвращает системные часы (time.Now с монотонной составляющей)
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
