package navercafe

import (
	"net/http/cookiejar"
	"net/url"
	"time"

	"mimiecho/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL  = "https://cafe.naver.com"
	DefaultLoginURL = "https://nid.naver.com/nidlogin.login"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type Client struct {
	BaseUrl  *url.URL
	LoginUrl string
	Http     *resty.Client
}

type ClientOptions struct {
	// cafe base url, DefaultBaseURL when empty
	BaseUrl string
	// login form url, DefaultLoginURL when empty
	LoginUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseURL
	}
	if opts.LoginUrl == "" {
		opts.LoginUrl = DefaultLoginURL
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", defaultUserAgent)
	client.SetHeader("accept-language", "ko-KR,ko;q=0.9")
	// the login flow bounces between nid.naver.com and www.naver.com
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/navercafe/http")

	c := &Client{
		BaseUrl:  baseUrl,
		LoginUrl: opts.LoginUrl,
		Http:     client,
	}
	return c, nil
}
