// Command xrayvision is the operator CLI: it drives query/retrieve against
// the remote archive, inspects the running daemon, and manages
// configuration files.
package main
