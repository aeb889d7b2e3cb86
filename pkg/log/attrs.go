package log

import "log/slog"

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func Tool[T ~string](id T) slog.Attr {
	return slog.String("tool", string(id))
}

func Action[T ~string](id T) slog.Attr {
	return slog.String("action", string(id))
}

func StepIndex(i int) slog.Attr {
	return slog.Int("step_index", i)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
