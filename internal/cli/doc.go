// Package cli is the interactive terminal front end of cargotrack.
//
// The REPL reads one command per line:
//
//	help                     show available commands
//	sync                     pull every collection from the remote store
//	login                    sign in with a user login or the fallback credential
//	logout                   drop the session, the snapshot and the cached token
//	list <kind>              print sites, trucks, drivers, users or loads
//	addload                  register a load (operators default to their site)
//	finalize <id>            close a load with its actual figures
//	addsite | addtruck | adddriver | adduser   administrators only
//	delete <kind> <id>       remove an entity (loads for everyone, the rest for administrators)
//	export                   upload the snapshot to the configured bucket
//	exit | quit              leave the program
//
// Operators only see the entities of their own site.
package cli
