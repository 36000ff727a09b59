package ircd

// Numeric reply codes this daemon emits. Names follow RFC 1459/2812.
const (
	rplWelcome       = "001"
	rplYourHost      = "002"
	rplCreated       = "003"
	rplMyInfo        = "004"
	rplAway          = "301"
	rplUserHost      = "302"
	rplIson          = "303"
	rplUnAway        = "305"
	rplNowAway       = "306"
	rplWhoisRegNick  = "307"
	rplWhoisUser     = "311"
	rplWhoisServer   = "312"
	rplWhoisOperator = "313"
	rplWhoWasUser    = "314"
	rplEndOfWho      = "315"
	rplWhoisIdle     = "317"
	rplEndOfWhois    = "318"
	rplWhoisChannels = "319"
	rplListStart     = "321"
	rplList          = "322"
	rplListEnd       = "323"
	rplChannelModeIs = "324"
	rplNoTopic       = "331"
	rplTopic         = "332"
	rplTopicWhoTime  = "333"
	rplInviting      = "341"
	rplVersion       = "351"
	rplWhoReply      = "352"
	rplNameReply     = "353"
	rplEndOfNames    = "366"
	rplEndOfWhoWas   = "369"
	rplMotd          = "372"
	rplMotdStart     = "375"
	rplEndOfMotd     = "376"
	rplYoureOper     = "381"
	rplRehashing     = "382"
	rplTime          = "391"
	errNoSuchNick    = "401"
	errNoSuchChannel = "403"
	errCannotSendToC = "404"
	errWasNoSuchNick = "406"
	errNoOrigin      = "409"
	errNotRegist     = "451"
	errNoRecipient   = "411"
	errNoTextToSend  = "412"
	errUnknownCmd    = "421"
	errNoMotd        = "422"
	errNoNicknameGvn = "431"
	errErroneousNick = "432"
	errNickInUse     = "433"
	errUserNotInChan = "441"
	errNotOnChannel  = "442"
	errUserOnChannel = "443"
	errSummonDisable = "445"
	errUsersDisabled = "446"
	errNeedMoreParam = "461"
	errAlreadyRegist = "462"
	errPasswdMismatc = "464"
	errKeySet        = "467"
	errChannelIsFull = "471"
	errUnknownMode   = "472"
	errInviteOnlyCh  = "473"
	errBannedFromCh  = "474"
	errBadChannelKey = "475"
	errNoPrivileges  = "481"
	errChanOPrivNeed = "482"
	errUModeUnknownF = "501"
	errUsersDontMtch = "502"
)
