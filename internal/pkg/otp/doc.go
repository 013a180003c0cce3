// Package otp generates one-time codes for out-of-band second factor checks.
//
// Codes are drawn from crypto/rand and formatted with the digit helpers of
// github.com/pquerna/otp so every code keeps its leading zeros.
package otp
