// Package chat is the Twitch IRC surface of the bot.
//
// Every joined channel is a group and every chatter (by lowercase login) is a
// user. A message such as "!steam对比 @friend" is parsed into a
// commands.Event, throttled per user, and handled on its own goroutine with a
// fresh correlation id. Replies are threaded under the triggering message;
// multi-line text becomes several messages and rendered images are posted as
// their URL.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes (TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN).
package chat
