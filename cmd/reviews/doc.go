// Command reviews runs the title review API.
//
//	reviews serve --migrate    apply migrations and serve /api/v1
//	reviews migrate            apply pending migrations
//	reviews migrate rollback   revert the last migration group
//	reviews createadmin        create or promote an administrator
//	reviews config init|show   write a sample config or print the loaded one
package main
