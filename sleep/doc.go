// Package sleep puts the device into a low-power mode, arms the caller's
// wakeup sources and, for modes that retain execution context, reports which
// source ended the wait.
//
// Two depths are implemented:
//
//	ModeStop       context retained; Enter returns after a wakeup
//	ModeHibernate  standby; Enter does not return on success
//
// Hardware is reached only through the collaborator interfaces in hw.go,
// bundled as Resources. The package never logs: most of Enter runs with
// global interrupts disabled.
package sleep
