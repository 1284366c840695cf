// Package channel implements persistence for the selected release channel.
//
// The FileRepository stores the channel as a JSON string literal ("beta") in a
// single file inside the application config directory.
package channel
