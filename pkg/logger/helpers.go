package logger

import "fmt"

// Icons for the high-signal log helpers
const (
	IconSuccess = "✅"
	IconWarning = "⚠️"
	IconRocket  = "🚀"
	IconRefresh = "🔄"
	IconMission = "🎯"
	IconBattery = "🔋"
)

// Success logs a success message with a green checkmark
func Success(args ...interface{}) {
	defaultLogger.Info(IconSuccess + " " + fmt.Sprint(args...))
}

// Successf logs a formatted success message
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Progress logs a progress message with a refresh icon
func Progress(args ...interface{}) {
	defaultLogger.Info(IconRefresh + " " + fmt.Sprint(args...))
}

// Progressf logs a formatted progress message
func Progressf(format string, args ...interface{}) {
	Progress(fmt.Sprintf(format, args...))
}

// Launch logs a deployment message
func Launch(args ...interface{}) {
	defaultLogger.Info(IconRocket + " " + fmt.Sprint(args...))
}

// Launchf logs a formatted deployment message
func Launchf(format string, args ...interface{}) {
	Launch(fmt.Sprintf(format, args...))
}

// Mission logs a mission lifecycle message
func Mission(args ...interface{}) {
	defaultLogger.Info(IconMission + " " + fmt.Sprint(args...))
}

// Missionf logs a formatted mission lifecycle message
func Missionf(format string, args ...interface{}) {
	Mission(fmt.Sprintf(format, args...))
}
