// Package interview holds the pure rules of a mock interview: how a
// transcript is shaped for the generative backend, how a free-form report is
// recovered from model output, how per-session topic scores fold into a
// long-term mastery estimate, and how completed sessions roll up into
// daily activity. Nothing here touches the network or the database.
package interview
