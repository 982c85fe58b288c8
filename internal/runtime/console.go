package runtime

// nopConsole discards messages and accepts every prompt's default.
type nopConsole struct{}

func (nopConsole) Report(string)                 {}
func (nopConsole) Info(string)                   {}
func (nopConsole) Error(string, string)          {}
func (nopConsole) Check(_ string, def bool) bool { return def }
func (nopConsole) Push(string)                   {}
func (nopConsole) Pop()                          {}
