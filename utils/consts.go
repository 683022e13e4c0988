package utils

import "time"

// response messages
const GENERIC_SERVER_ERROR = "Something went wrong"
const MISSING_REQUEST_DATA = "Missing required fields"
const MISSING_CREDENTIALS = "Missing email or password"
const USER_EXISTS_ERROR = "User already exists"
const USER_NOT_FOUND_ERROR = "User doesn't exist"
const INVALID_CREDENTIALS_ERROR = "Invalid credentials"
const WEAK_PASSWORD_ERROR = "Password must be at least 8 characters long and contain at least one lowercase letter, one uppercase letter, and one digit"
const TOO_MANY_ATTEMPTS_ERROR = "Too many login attempts. Please try again later."
const TOO_MANY_REQUESTS_ERROR = "Too many requests. Please slow down."
const UNAUTHORIZED_ERROR = "Unauthorized"
const FORBIDDEN_ERROR = "Forbidden"
const POST_NOT_FOUND_ERROR = "No post with that id"
const POST_DELETED = "Post deleted successfully."

// password hashing
const DEFAULT_HASH_COST = 12
const MIN_PASSWORD_LENGTH = 8
const MAX_PASSWORD_LENGTH = 72
const THROWAWAY_PASSWORD_BYTES = 32

// login attempts
const MAX_NUM_LOGIN_ATTEMPTS = 5
const LOGIN_ATTEMPT_WINDOW = time.Hour

// tokens
const ACCESS_TOKEN_DURATION = time.Hour
const DEFAULT_TOKEN_ISSUER = "postboard"
