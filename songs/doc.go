/*
Package songs implements the songs REST API

A song is a free-form JSON object. The server assigns an "_id" and a
"createDate" on creation; a song needs a non-empty "number" or "name".

	GET    /songs
	POST   /songs
	GET    /songs/{id}
	PUT    /songs/{id}
	DELETE /songs/{id}

Errors are answered with {"error": "<message>"}.
*/
package songs
