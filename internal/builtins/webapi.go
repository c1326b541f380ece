package builtins

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jstime-go/jstime/internal/engine"
)

// webAPIGroup installs Headers, URL, URLSearchParams, Request, Response,
// TextEncoder, and TextDecoder. Grounded on the teacher's
// internal/webapi/webapi.go: URL parsing is Go-backed (net/url) behind a
// __parseURL binding, with everything else — including Request/Response's
// ReadableStream-backed body accessor and TextDecoder's streaming UTF-8
// state machine — carried over as pure JS, since none of it touches the
// outside world.
type webAPIGroup struct{}

// NewWebAPI returns the URL/Headers/Request/Response/TextEncoder/TextDecoder
// builtin group.
func NewWebAPI() engine.BindingGroup { return &webAPIGroup{} }

func (g *webAPIGroup) Name() string { return "webapi" }

func (g *webAPIGroup) Register(rt *engine.Runtime) error {
	if err := engine.RegisterFunc(rt, "__parseURL", func(input, base string) string {
		return parseURLJSON(input, base)
	}); err != nil {
		return err
	}
	_, err := rt.Ctx.RunScript(webAPIJS, "webapi.js")
	return err
}

type parsedURL struct {
	Error    string `json:"error,omitempty"`
	Href     string `json:"href"`
	Protocol string `json:"protocol"`
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	Hash     string `json:"hash"`
	Origin   string `json:"origin"`
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// parseURLJSON parses rawURL (optionally relative to base) using net/url and
// returns the result JSON-encoded, matching the WHATWG URL record's field
// names. On failure, the JSON carries an "error" field instead, which the JS
// constructor turns into a thrown TypeError — URL parsing itself never
// panics across the Go/JS boundary.
func parseURLJSON(rawURL, base string) string {
	var u *url.URL
	var err error
	if base != "" {
		var baseURL *url.URL
		baseURL, err = url.Parse(base)
		if err == nil {
			u, err = baseURL.Parse(rawURL)
		}
	} else {
		u, err = url.Parse(rawURL)
	}
	if err != nil || u == nil || u.Scheme == "" {
		b, _ := json.Marshal(parsedURL{Error: fmt.Sprintf("Invalid URL: %q", rawURL)})
		return string(b)
	}

	host := u.Hostname()
	port := u.Port()
	hostHeader := host
	if port != "" {
		hostHeader = host + ":" + port
	}
	origin := u.Scheme + "://" + hostHeader
	pathname := u.EscapedPath()
	if pathname == "" {
		pathname = "/"
	}
	search := ""
	if u.RawQuery != "" {
		search = "?" + u.RawQuery
	}
	hash := ""
	if u.Fragment != "" {
		hash = "#" + u.EscapedFragment()
	}
	password, _ := u.User.Password()

	b, _ := json.Marshal(parsedURL{
		Href:     u.String(),
		Protocol: u.Scheme + ":",
		Hostname: host,
		Port:     port,
		Pathname: pathname,
		Search:   search,
		Hash:     hash,
		Origin:   origin,
		Host:     hostHeader,
		Username: u.User.Username(),
		Password: password,
	})
	return string(b)
}

const webAPIJS = `
(function() {

class Headers {
	constructor(init) {
		this._map = {};
		if (init) {
			if (init instanceof Headers) {
				for (const [k, v] of Object.entries(init._map)) this._map[k] = v;
			} else if (Array.isArray(init)) {
				for (const [k, v] of init) this._map[k.toLowerCase()] = String(v);
			} else {
				for (const [k, v] of Object.entries(init)) this._map[k.toLowerCase()] = String(v);
			}
		}
	}
	get(name) { return Object.prototype.hasOwnProperty.call(this._map, name.toLowerCase()) ? this._map[name.toLowerCase()] : null; }
	set(name, value) { this._map[name.toLowerCase()] = String(value); }
	has(name) { return name.toLowerCase() in this._map; }
	delete(name) { delete this._map[name.toLowerCase()]; }
	append(name, value) {
		const key = name.toLowerCase();
		this._map[key] = this._map[key] ? this._map[key] + ', ' + String(value) : String(value);
	}
	forEach(cb) { for (const [k, v] of Object.entries(this._map)) cb(v, k, this); }
	entries() { return Object.entries(this._map)[Symbol.iterator](); }
	keys() { return Object.keys(this._map)[Symbol.iterator](); }
	values() { return Object.values(this._map)[Symbol.iterator](); }
	[Symbol.iterator]() { return this.entries(); }
}

class URLSearchParams {
	constructor(init) {
		this._entries = [];
		if (typeof init === 'string') {
			const s = init.startsWith('?') ? init.slice(1) : init;
			if (s) {
				for (const pair of s.split('&')) {
					const [k, ...rest] = pair.split('=');
					this._entries.push([decodeURIComponent(k.replace(/\+/g, '%20')), decodeURIComponent(rest.join('=').replace(/\+/g, '%20'))]);
				}
			}
		} else if (Array.isArray(init)) {
			for (const [k, v] of init) this._entries.push([String(k), String(v)]);
		} else if (init && typeof init === 'object') {
			for (const [k, v] of Object.entries(init)) this._entries.push([k, String(v)]);
		}
	}
	get(name) { const e = this._entries.find(([k]) => k === name); return e ? e[1] : null; }
	getAll(name) { return this._entries.filter(([k]) => k === name).map(([, v]) => v); }
	has(name) { return this._entries.some(([k]) => k === name); }
	set(name, value) {
		const idx = this._entries.findIndex(([k]) => k === name);
		if (idx === -1) { this._entries.push([name, String(value)]); }
		else { this._entries[idx] = [name, String(value)]; this._entries = this._entries.filter(([k], i) => k !== name || i === idx); }
	}
	append(name, value) { this._entries.push([name, String(value)]); }
	delete(name) { this._entries = this._entries.filter(([k]) => k !== name); }
	sort() { this._entries.sort((a, b) => a[0] < b[0] ? -1 : a[0] > b[0] ? 1 : 0); }
	toString() { return this._entries.map(([k, v]) => encodeURIComponent(k) + '=' + encodeURIComponent(v)).join('&'); }
	forEach(cb) { for (const [k, v] of this._entries) cb(v, k, this); }
	entries() { return this._entries[Symbol.iterator](); }
	keys() { return this._entries.map(([k]) => k)[Symbol.iterator](); }
	values() { return this._entries.map(([, v]) => v)[Symbol.iterator](); }
	[Symbol.iterator]() { return this.entries(); }
}

class URL {
	constructor(input, base) {
		const parsed = JSON.parse(__parseURL(String(input), base !== undefined && base !== null ? String(base) : ''));
		if (parsed.error) throw new TypeError(parsed.error);
		Object.assign(this, parsed);
		delete this.error;
		this.searchParams = new URLSearchParams(this.search);
	}
	toString() { return this.href; }
	toJSON() { return this.href; }
	static canParse(u, base) {
		try { new URL(u, base); return true; } catch (e) { return false; }
	}
}

function isReadableStream(v) {
	return typeof ReadableStream !== 'undefined' && v instanceof ReadableStream;
}

function bodyToStream(content) {
	return new ReadableStream({
		start(controller) {
			if (content === null || content === undefined) { controller.close(); return; }
			if (typeof content === 'string') {
				controller.enqueue(new TextEncoder().encode(content));
			} else if (content instanceof ArrayBuffer) {
				controller.enqueue(new Uint8Array(content));
			} else if (ArrayBuffer.isView(content)) {
				controller.enqueue(new Uint8Array(content.buffer, content.byteOffset, content.byteLength));
			} else {
				controller.enqueue(new TextEncoder().encode(String(content)));
			}
			controller.close();
		},
	});
}

class Request {
	constructor(input, init) {
		init = init || {};
		if (input instanceof Request) {
			this.url = input.url;
			this.method = input.method;
			this.headers = new Headers(input.headers);
			this._body = input._body;
		} else {
			try { this.url = new URL(String(input)).href; } catch (e) { this.url = String(input); }
			this.method = 'GET';
			this.headers = new Headers();
			this._body = null;
		}
		if (init.method) this.method = init.method.toUpperCase();
		if (init.headers) this.headers = new Headers(init.headers);
		if (init.body !== undefined) this._body = init.body;
		this.signal = init.signal || null;
	}
	get body() {
		if (isReadableStream(this._body)) return this._body;
		this._body = bodyToStream(this._body);
		return this._body;
	}
	get bodyUsed() { return isReadableStream(this._body) && !!this._body.locked; }
	async text() {
		if (this._body === null || this._body === undefined) return '';
		if (isReadableStream(this._body)) {
			const buf = await new Response(this._body).arrayBuffer();
			return new TextDecoder().decode(buf);
		}
		return String(this._body);
	}
	async json() { return JSON.parse(await this.text()); }
	async arrayBuffer() { return new TextEncoder().encode(await this.text()).buffer; }
	async bytes() { return new TextEncoder().encode(await this.text()); }
	clone() { return new Request(this); }
}

class Response {
	constructor(body, init) {
		init = init || {};
		this._body = body !== undefined ? body : null;
		this.status = init.status !== undefined ? init.status : 200;
		this.statusText = init.statusText || '';
		this.headers = new Headers(init.headers);
		this.ok = this.status >= 200 && this.status < 300;
		this.url = init.url || '';
		this.redirected = !!init.redirected;
		this.type = init.type || 'basic';
	}
	get body() {
		if (isReadableStream(this._body)) return this._body;
		this._body = bodyToStream(this._body);
		return this._body;
	}
	get bodyUsed() { return isReadableStream(this._body) && !!this._body.locked; }
	async text() {
		if (this._body === null || this._body === undefined) return '';
		if (isReadableStream(this._body)) {
			const reader = this._body.getReader();
			const chunks = [];
			let total = 0;
			for (;;) {
				const { done, value } = await reader.read();
				if (done) break;
				chunks.push(value);
				total += value.length;
			}
			const out = new Uint8Array(total);
			let off = 0;
			for (const c of chunks) { out.set(c, off); off += c.length; }
			return new TextDecoder().decode(out);
		}
		return String(this._body);
	}
	async json() { return JSON.parse(await this.text()); }
	async arrayBuffer() { return new TextEncoder().encode(await this.text()).buffer; }
	async bytes() { return new TextEncoder().encode(await this.text()); }
	clone() {
		return new Response(this._body, { status: this.status, statusText: this.statusText, headers: new Headers(this.headers), url: this.url });
	}
	static json(data, init) {
		init = init || {};
		const headers = new Headers(init.headers);
		if (!headers.has('content-type')) headers.set('content-type', 'application/json');
		return new Response(JSON.stringify(data), Object.assign({}, init, { headers }));
	}
	static redirect(url, status) {
		status = status || 302;
		if ([301, 302, 303, 307, 308].indexOf(status) === -1) throw new RangeError('Invalid redirect status: ' + status);
		return new Response(null, { status, headers: { location: String(url) } });
	}
	static error() {
		const r = new Response(null, { status: 0, statusText: '' });
		r.type = 'error';
		return r;
	}
}

globalThis.Headers = Headers;
globalThis.URL = URL;
globalThis.URLSearchParams = URLSearchParams;
globalThis.Request = Request;
globalThis.Response = Response;

class TextEncoder {
	get encoding() { return 'utf-8'; }
	encode(str) {
		str = str === undefined ? '' : String(str);
		const buf = [];
		for (let i = 0; i < str.length; i++) {
			let c = str.charCodeAt(i);
			if (c < 0x80) {
				buf.push(c);
			} else if (c < 0x800) {
				buf.push(0xc0 | (c >> 6), 0x80 | (c & 0x3f));
			} else if (c >= 0xd800 && c <= 0xdbff && i + 1 < str.length) {
				const next = str.charCodeAt(++i);
				const cp = ((c - 0xd800) << 10) + (next - 0xdc00) + 0x10000;
				buf.push(0xf0 | (cp >> 18), 0x80 | ((cp >> 12) & 0x3f), 0x80 | ((cp >> 6) & 0x3f), 0x80 | (cp & 0x3f));
			} else {
				buf.push(0xe0 | (c >> 12), 0x80 | ((c >> 6) & 0x3f), 0x80 | (c & 0x3f));
			}
		}
		return new Uint8Array(buf);
	}
	encodeInto(str, dest) {
		const enc = this.encode(str);
		const n = Math.min(enc.length, dest.length);
		dest.set(enc.subarray(0, n));
		return { read: str.length, written: n };
	}
}

class TextDecoder {
	constructor(encoding, options) {
		let label = (encoding || 'utf-8').toLowerCase().trim();
		if (label === 'utf8' || label === 'unicode-1-1-utf-8') label = 'utf-8';
		this._encoding = label;
		this._fatal = !!(options && options.fatal);
		this._ignoreBOM = !!(options && options.ignoreBOM);
		this._bomSeen = false;
		this._pending = [];
	}
	get encoding() { return this._encoding; }
	get fatal() { return this._fatal; }
	get ignoreBOM() { return this._ignoreBOM; }
	decode(buf, options) {
		const stream = !!(options && options.stream);
		let incoming;
		if (!buf) incoming = new Uint8Array(0);
		else if (buf instanceof ArrayBuffer) incoming = new Uint8Array(buf);
		else if (ArrayBuffer.isView(buf)) incoming = new Uint8Array(buf.buffer, buf.byteOffset, buf.byteLength);
		else incoming = new Uint8Array(buf);

		let bytes;
		if (this._pending.length > 0) {
			bytes = new Uint8Array(this._pending.length + incoming.length);
			bytes.set(this._pending);
			bytes.set(incoming, this._pending.length);
			this._pending = [];
		} else {
			bytes = incoming;
		}

		let start = 0;
		if (!this._bomSeen) {
			if (bytes.length >= 3) {
				if (!this._ignoreBOM && bytes[0] === 0xEF && bytes[1] === 0xBB && bytes[2] === 0xBF) start = 3;
				this._bomSeen = true;
			} else if (!stream) {
				this._bomSeen = true;
			}
		}

		let result = '';
		let i = start;
		while (i < bytes.length) {
			const b = bytes[i];
			if (b < 0x80) { result += String.fromCharCode(b); i++; continue; }
			let need, cp, min;
			if ((b & 0xe0) === 0xc0) { need = 1; cp = b & 0x1f; min = 0x80; }
			else if ((b & 0xf0) === 0xe0) { need = 2; cp = b & 0x0f; min = 0x800; }
			else if ((b & 0xf8) === 0xf0) { need = 3; cp = b & 0x07; min = 0x10000; }
			else {
				if (this._fatal) throw new TypeError('The encoded data was not valid utf-8');
				result += '�'; i++; continue;
			}
			if (i + need >= bytes.length) {
				if (stream) { this._pending = Array.from(bytes.subarray(i)); break; }
				if (this._fatal) throw new TypeError('The encoded data was not valid utf-8');
				result += '�'; i++; continue;
			}
			let ok = true;
			for (let j = 1; j <= need; j++) {
				const cb = bytes[i + j];
				if ((cb & 0xc0) !== 0x80) { ok = false; break; }
				cp = (cp << 6) | (cb & 0x3f);
			}
			if (!ok || cp < min) {
				if (this._fatal) throw new TypeError('The encoded data was not valid utf-8');
				result += '�'; i++; continue;
			}
			if (cp > 0xffff) {
				cp -= 0x10000;
				result += String.fromCharCode(0xd800 + (cp >> 10), 0xdc00 + (cp & 0x3ff));
			} else {
				result += String.fromCharCode(cp);
			}
			i += need + 1;
		}
		if (!stream) this._pending = [];
		return result;
	}
}

globalThis.TextEncoder = TextEncoder;
globalThis.TextDecoder = TextDecoder;

})();
`
