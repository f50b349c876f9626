// Package cli is the console chat surface of the bot.
//
// A Console reads one command per line, runs it as the current user and
// prints the reply the bot would post in the channel. Reminders and
// assignment messages arrive through the delivery queue and are printed by
// the WriterSender the app attaches to stdout.
//
// Commands:
//
//	add <name...> [-d date]           add a task; date is YYYY-MM-DD or days from today
//	complete <id,id,...>              mark tasks done
//	tasks                             next five open tasks
//	alltasks                          every open task
//	gettask                           pick one task to focus on
//	remove <id> | purge               delete one task | drop completed tasks
//	timezone <tz>                     set your timezone (e.g. EST, Europe/Riga)
//	give <user> <name...> [-d date]   offer a task to another user
//	pending | accept <id> | decline <id>
//	user <id>                         act as another user
//	help | exit
package cli
