// Package recurrence regenerates completed recurring tasks.
//
// Engine.Run turns every completed daily or weekly task into its next
// pending occurrence inside one serializable transaction. CronTrigger fires
// Engine.Run once a day at a configured wall-clock time.
package recurrence
