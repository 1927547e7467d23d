package handler

const (
	errEmailMissing      = "Please, type your E-mail"
	errEmailInvalid      = "The email address you entered is invalid."
	errLoginInternal     = "Internal server error, please try again later."
	errTooManyLogins     = "Too many login attempts, try again later."
	errEmailFieldMissing = "The email field was not provided"
	errTokenFieldMissing = "The token field was not provided"
	errCodeInvalid       = "The password is invalid"
	errCodeExpired       = "The password has expired"
	errUnauthorized      = "unauthorized"

	errNameMissing     = "You need to provide a name"
	errUsernameMissing = "You need to provide a username"
	errEmailTaken      = "The email address provided is already associated with an existing account."
	errUserUnique      = "Username and email should be unique."
	errUserUpdateFail  = "Failed to update the user."
	errUserNotFound    = "User not found"
	errImageMissing    = "Image not provided"
	errFileTooLarge    = "File too large. Maximum size is 15MB."

	errTweetCreateFail = "Failed to create the post."
	errTweetUpdateFail = "Failed to update the tweet."
	errTweetNotFound   = "Tweet not found"

	errInternalServer = "Internal server error"
)
